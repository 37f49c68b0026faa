package covinfo

import (
	"fmt"
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("info").Funcs(template.FuncMap{
	"deg": func(v float64) string { return fmt.Sprintf("%.3f deg", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: "Helvetica Neue",Helvetica,Arial,sans-serif; font-size: 0.8em;}
.bold {font-weight:bold;}
.italic {font-style:italic;}
</style>
</head>
<body>
<div class="bold">{{.Identifier}}</div>
<div><img src="{{.BrowseURL}}" /></div>
<table>
<tr><td colspan="2" class="italic">Coverage Metadata:</td></tr>
<tr><td>&nbsp;&nbsp;subtype:</td><td>{{.Subtype}}</td></tr>
<tr><td>&nbsp;&nbsp;source size:</td><td>{{.SizeX}} x {{.SizeY}} pixels</td></tr>
<tr><td>&nbsp;&nbsp;source bands:</td><td>{{.Bands}}</td></tr>
<tr><td colspan="2" class="italic">Earth Observation:</td></tr>
<tr><td colspan="2" class="italic">&nbsp;&nbsp;Phenomenon Time:</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;start:</td><td>{{.Begin}}</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;stop:</td><td>{{.End}}</td></tr>
<tr><td colspan="2" class="italic">&nbsp;&nbsp;Spatial Metadata:</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;CRS:</td><td>EPSG:{{.SRID}}</td></tr>
<tr><td colspan="2" class="italic">&nbsp;&nbsp;&nbsp;&nbsp;Extent:</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;north:</td><td>{{deg .Extent.MaxY}}</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;west:</td><td>{{deg .Extent.MinX}}</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;east:</td><td>{{deg .Extent.MaxX}}</td></tr>
<tr><td>&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;south:</td><td>{{deg .Extent.MinY}}</td></tr>
</table>
</body>
</html>
`))

// WriteHTML renders the info page.
func (i *Info) WriteHTML(w io.Writer) error {
	return pageTemplate.Execute(w, i)
}
