// Package loader mounts the HTTP features of the application.
//
// A feature bundles a service with the routes that expose it and implements
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// cmd/start registers health, auth and users with a Manager in that order.
// LoadAll mounts every enabled feature and stops at the first error, naming
// the feature that failed. Disabled features are logged and skipped.
package loader
