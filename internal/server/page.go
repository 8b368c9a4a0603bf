package server

// indexPage is the form. Query parameters pre-fill the text fields and, with
// a frame, the preview.
const indexPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin: .5rem 0 .2rem; }
input[type=text], input[type=email] { width: 100%; padding: .4rem; }
.frames { display: flex; gap: .5rem; flex-wrap: wrap; margin: 1rem 0; }
.frames label { text-align: center; cursor: pointer; }
.frames img { width: 120px; height: 120px; border: 2px solid #ddd; }
.frames input:checked + img { border-color: #1E88E5; }
.preview { max-width: 480px; width: 100%; }
button { margin-right: .5rem; padding: .5rem 1rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .Preview}}
<img class="preview" id="preview" src="{{.Preview}}" alt="Poster preview">
{{- end}}
<form method="post" action="/api/render" enctype="multipart/form-data" target="_blank">
  <label for="name">Name</label>
  <input type="text" id="name" name="name" value="{{.Name}}">
  <label for="company">Company</label>
  <input type="text" id="company" name="company" value="{{.Company}}">
  <label for="email">Email</label>
  <input type="email" id="email" name="email" value="{{.Email}}">
  <label for="photo">Photo</label>
  <input type="file" id="photo" name="photo" accept="image/*">
  <div class="frames">
  {{- range .Frames}}
    <label>
      <input type="radio" name="frame" value="{{.Name}}"{{if eq .Name $.Frame}} checked{{end}} hidden>
      <img src="{{.URL}}" alt="{{.Name}}">
      <div>{{.Name}}</div>
    </label>
  {{- end}}
  </div>
  <button type="submit">Preview</button>
  <button type="submit" formaction="/api/render?download=1">Download</button>
  <button type="submit" formaction="/api/share">Share</button>
</form>
</body>
</html>
`
