package ui

import (
	"slices"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type loginPageData struct {
	Error   string
	Methods []string
	CSRF    func() Node
}

func loginPage(d loginPageData) Node {
	content := []Node{
		H1(Text("Admin Dashboard")),
	}
	if d.Error != "" {
		content = append(content, P(Class("flash flash-error"), Role("alert"), Text("Error: "+d.Error)))
	}

	if slices.Contains(d.Methods, loginPassword) {
		content = append(content, Form(
			Method("post"),
			Action("/ui/login"),
			Class("login-form mb-4"),
			d.CSRF(),
			Input(Type("hidden"), Name("method"), Value(loginPassword)),
			Label(For("email"), Text("Email")),
			Input(ID("email"), Name("email"), Type("email"), Class("form-control"), AutoComplete("username"), Required()),
			Label(For("password"), Text("Password")),
			Input(ID("password"), Name("password"), Type("password"), Class("form-control"), AutoComplete("current-password"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Sign in")),
		))
	}

	if slices.Contains(d.Methods, loginDemo) {
		content = append(content, Form(
			Method("post"),
			Action("/ui/login"),
			Class("login-form mb-4"),
			d.CSRF(),
			Input(Type("hidden"), Name("method"), Value(loginDemo)),
			P(Class(mutedClass()), Text("Demo mode: sign in as any seeded profile, e.g. admin@example.com.")),
			Label(For("demo-email"), Text("Email")),
			Input(ID("demo-email"), Name("email"), Type("email"), Class("form-control"), Required()),
			Button(Type("submit"), Class("btn"), Text("Sign in as profile")),
		))
	}

	if slices.Contains(d.Methods, loginToken) {
		content = append(content, Form(
			Method("post"),
			Action("/ui/login"),
			Class("login-form"),
			d.CSRF(),
			Input(Type("hidden"), Name("method"), Value(loginToken)),
			Label(For("token"), Text("Access token")),
			Textarea(ID("token"), Name("token"), Class("form-control"), Placeholder("Paste a JWT access token"), Required()),
			Button(Type("submit"), Class("btn"), Text("Sign in with token")),
		))
	}

	if len(d.Methods) == 0 {
		content = append(content, P(Class(mutedClass()), Text("No sign-in method is configured.")))
	}

	return HTML(
		Lang("en"),
		pageHead("Sign in"),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}
