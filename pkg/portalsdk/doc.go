/*
Package portalsdk is a client for the portal's JSON API and holds the wire
types shared by the server and its callers.

	client := portalsdk.NewSDKClient("https://portal.example.com")

	reg, err := client.Register(ctx, portalsdk.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "correct-horse",
	})

	login, err := client.Login(ctx, portalsdk.LoginRequest{
		Email:    "jane@example.com",
		Password: "correct-horse",
	})

	// Session cookies are kept in the client's jar.
	session, err := client.GetSession(ctx)

Failed calls return *ErrorResponse, which carries the HTTP status, a stable
code and, for validation failures, a message per field:

	var apiErr *portalsdk.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Code == portalsdk.CodeValidation {
		for field, msg := range apiErr.Fields {
			fmt.Printf("%s: %s\n", field, msg)
		}
	}
*/
package portalsdk
