// Package gotrue is a small typed client for the hosted authentication REST
// API (GoTrue, as served under /auth/v1 by Supabase).
//
// Public operations authenticate with the project's anon key. Administrative
// operations need the service role key and fail with ErrNoServiceKey when it
// has not been configured.
package gotrue
