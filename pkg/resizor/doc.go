// Package resizor is a client for the Resizor image hosting API.
//
// An ImageRepository lists, fetches, uploads and deletes images for one account.
// Every request carries a UTC timestamp and an HMAC signature computed from the
// account secret; the access key travels in the URL path.
//
//	repo, err := resizor.New(resizor.Config{
//	    Host:       "https://resizor.example.com",
//	    APIVersion: "v1",
//	    AccessKey:  "my-access-key",
//	    SecretKey:  "my-secret-key",
//	}, transport.NewHTTP(transport.WithTimeout(30*time.Second)))
//
//	img, err := repo.Find(ctx, "42")
//	if err == nil && img == nil {
//	    // not found (or the service refused the lookup)
//	}
package resizor
