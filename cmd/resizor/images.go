package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

// errNotFound is returned when find yields no image
var errNotFound = errors.New("image not found")

func newListCmd() *cobra.Command {
	var params []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images",
		Example: `  # List all images
  resizor list

  # Pass extra signed query parameters
  resizor list --param page=2 --param per_page=50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseParams(params)
			if err != nil {
				return err
			}

			images, err := repositoryFromContext(cmd.Context()).All(cmd.Context(), extra)
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}
			if images == nil {
				return errors.New("list images: service returned no images")
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), images.Images())
			}
			return writeTable(cmd.OutOrStdout(), images.Images())
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "extra key=value parameter (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find ID",
		Short: "Show one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := repositoryFromContext(cmd.Context()).Find(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find image: %w", err)
			}
			if img == nil {
				return fmt.Errorf("find image %s: %w", args[0], errNotFound)
			}
			return writeJSON(cmd.OutOrStdout(), img)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := repositoryFromContext(cmd.Context()).Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("delete image: %w", err)
			}
			if err := responseError(resp); err != nil {
				return fmt.Errorf("delete image %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted image %s\n", args[0])
			return nil
		},
	}
}

func newStoreCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "store FILE",
		Short: "Upload an image",
		Example: `  # Upload and let the service pick an id
  resizor store ./cat.png

  # Upload under a specific id
  resizor store ./cat.png --id cat`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			var opts []resizor.StoreOption
			if id != "" {
				opts = append(opts, resizor.WithImageID(id))
			}

			resp, err := repositoryFromContext(cmd.Context()).Store(cmd.Context(), transport.File{
				FileName:    filepath.Base(args[0]),
				ContentType: mime.TypeByExtension(filepath.Ext(args[0])),
				Reader:      f,
			}, opts...)
			if err != nil {
				return fmt.Errorf("store image: %w", err)
			}
			if err := responseError(resp); err != nil {
				return fmt.Errorf("store image: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp.(*resizor.ImageResponse).Image)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "store under this image id")
	return cmd
}

func parseParams(pairs []string) (map[string]any, error) {
	extra := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", p)
		}
		extra[k] = v
	}
	return extra, nil
}

func responseError(resp resizor.Response) error {
	if resp.Success() {
		return nil
	}
	errResp, ok := resp.(*resizor.ErrorResponse)
	if !ok {
		return errors.New("request failed")
	}
	return fmt.Errorf("status %d: %s", errResp.StatusCode, strings.Join(errResp.Messages(), "; "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, images []resizor.Image) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tDIMENSIONS\tURL")
	rows := lo.Map(images, func(img resizor.Image, _ int) string {
		return fmt.Sprintf("%s\t%d\t%dx%d\t%s", img.ID, img.Size, img.Width, img.Height, img.URL)
	})
	for _, row := range rows {
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}
