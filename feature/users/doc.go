// Package users provides the admin API for managing accounts.
//
// All routes live under /api/users and require a session with the admin role.
// Reads go through the "users" cache namespace (single users by ID, list pages
// under "users:list"); every write drops the user's entry and clears the list pages.
//
// Deleting a user is a soft delete: the row keeps its data, disappears from default
// queries and can be restored. Deleting or banning a user also revokes their sessions.
//
// Avatars are stored under avatars/<user id>/ in the upload bucket. ReconcileAvatars
// finds objects no user references and users whose object is gone.
package users
