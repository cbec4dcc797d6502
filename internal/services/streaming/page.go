package streaming

import "html/template"

var playerPage = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body style="margin:0;display:flex;justify-content:center;align-items:center;height:100vh;background:black;">
<video src="{{.Src}}" controls autoplay playsinline style="width:100%;height:auto;"></video>
</body>
</html>
`))

type pageData struct {
	Title string
	Src   string
}
