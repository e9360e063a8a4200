package http

import "html/template"

// Screen templates. The portal renders server side; these are deliberately
// plain so the markup stays readable in one file.
var screens = template.Must(template.New("screens").Parse(`
{{define "head"}}
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - IQ Didactic</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; color: #1a202c; }
form.auth { max-width: 22rem; }
label { display: block; margin-top: .75rem; }
input, select { width: 100%; padding: .4rem; margin-top: .2rem; }
button { margin-top: 1rem; padding: .5rem 1rem; }
.error { color: #c53030; margin-top: 1rem; }
.muted { color: #718096; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e2e8f0; }
nav a { margin-right: 1rem; }
</style>
</head>
<body>
{{end}}

{{define "foot"}}
</body>
</html>
{{end}}

{{define "loading"}}
{{template "head" .}}
<h1>Signing you in&hellip;</h1>
<p class="muted">Checking your saved session. This page refreshes automatically.</p>
{{template "foot" .}}
{{end}}

{{define "login"}}
{{template "head" .}}
<h1>Sign in</h1>
<form class="auth" method="post" action="/login">
  <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<p class="muted">No account? <a href="/register">Register</a></p>
{{template "foot" .}}
{{end}}

{{define "register"}}
{{template "head" .}}
<h1>Create account</h1>
<form class="auth" method="post" action="/register">
  <label>Full name <input type="text" name="full_name" value="{{.FullName}}" required></label>
  <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Password <input type="password" name="password" required></label>
  <label>Language
    <select name="preferred_language">
      <option value="en">English</option>
      <option value="fr">Français</option>
    </select>
  </label>
  <label>Phone <input type="text" name="phone"></label>
  <label>Country <input type="text" name="country"></label>
  <label>Occupation <input type="text" name="occupation"></label>
  <button type="submit">Register</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<p class="muted">Already registered? <a href="/login">Sign in</a></p>
{{template "foot" .}}
{{end}}

{{define "dashboard"}}
{{template "head" .}}
<nav>
  <a href="/dashboard">Dashboard</a>
  {{if .IsAdmin}}<a href="/admin">Admin console</a>{{end}}
  <form method="post" action="/logout" style="display:inline"><button type="submit">Sign out</button></form>
</nav>
<h1>Welcome, {{.User.FullName}}</h1>
<p class="muted">{{.User.Email}} &middot; {{.User.StudentID}} &middot; role: {{.User.Role}}</p>
<p>Profile completion: <strong>{{.Completion}}%</strong></p>
{{if .User.ProfilePicture}}
<p><img src="{{.User.ProfilePicture}}" alt="profile picture" width="96"></p>
<form method="post" action="/profile/picture/delete"><button type="submit">Remove picture</button></form>
{{else}}
<form method="post" action="/profile/picture" enctype="multipart/form-data">
  <label>Profile picture <input type="file" name="file" accept="image/*" required></label>
  <button type="submit">Upload</button>
</form>
{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{template "foot" .}}
{{end}}

{{define "admin"}}
{{template "head" .}}
<nav>
  <a href="/dashboard">Dashboard</a>
  <a href="/admin">Admin console</a>
  <a href="/admin/users">Users</a>
  <form method="post" action="/logout" style="display:inline"><button type="submit">Sign out</button></form>
</nav>
<h1>Admin console</h1>
{{if .Stats}}
<table>
  <tr><th>Users</th><td>{{.Stats.Users.Total}}</td></tr>
  <tr><th>Students</th><td>{{.Stats.Users.Students}}</td></tr>
  <tr><th>Teachers</th><td>{{.Stats.Users.Teachers}}</td></tr>
  <tr><th>Admins</th><td>{{.Stats.Users.Admins}}</td></tr>
  <tr><th>Courses</th><td>{{.Stats.Courses.Total}} ({{.Stats.Courses.Published}} published)</td></tr>
  <tr><th>Enrollments</th><td>{{.Stats.Courses.Enrollments}}</td></tr>
</table>
{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{template "foot" .}}
{{end}}

{{define "admin_users"}}
{{template "head" .}}
<nav>
  <a href="/dashboard">Dashboard</a>
  <a href="/admin">Admin console</a>
  <a href="/admin/users">Users</a>
</nav>
<h1>Users</h1>
<form method="get" action="/admin/users">
  <input type="text" name="search" placeholder="name or email" value="{{.Search}}">
  <select name="role">
    <option value="">all roles</option>
    <option value="student">student</option>
    <option value="teacher">teacher</option>
    <option value="admin">admin</option>
  </select>
  <button type="submit">Filter</button>
</form>
<table>
  <tr><th>Name</th><th>Email</th><th>Role</th><th>ID</th><th></th></tr>
  {{range .Users}}
  <tr>
    <td>{{.FullName}}</td>
    <td>{{.Email}}</td>
    <td>{{.Role}}</td>
    <td class="muted">{{.StudentID}}</td>
    <td>
      <form method="post" action="/admin/users/{{.ID}}/generate-password" style="display:inline"><button>New password</button></form>
      <form method="post" action="/admin/users/{{.ID}}/reset-password" style="display:inline">
        <input type="password" name="new_password" placeholder="set password" style="width:8rem">
        <button>Set</button>
      </form>
      <form method="post" action="/admin/users/{{.ID}}/delete" style="display:inline"><button>Delete</button></form>
    </td>
  </tr>
  {{end}}
</table>
{{if .Notice}}<p>{{.Notice}}</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{template "foot" .}}
{{end}}
`))
