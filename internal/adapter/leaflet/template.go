package leaflet

import "html/template"

var pageTemplate = template.Must(template.New("overlay").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" crossorigin="">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" crossorigin=""></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.legend { background: rgba(255,255,255,0.9); padding: 6px 10px; font: 12px sans-serif; line-height: 18px; border-radius: 4px; }
.legend i { width: 14px; height: 14px; float: left; margin-right: 6px; opacity: 0.9; }
</style>
</head>
<body>
<div id="map"></div>
{{- if .Legend}}
<div id="legend" class="legend">
<strong>{{.LegendTitle}}</strong><br>
{{- range .Legend}}
<i style="background: {{.Color}}"></i>{{.Label}} <small>{{.Range}}</small><br>
{{- end}}
</div>
{{- end}}
<script>
const bounds = [[{{.South}}, {{.West}}], [{{.North}}, {{.East}}]];
const map = L.map("map");
const base = L.tileLayer({{.TileURL}}, {maxZoom: 19, attribution: {{.Attribution}}}).addTo(map);
const overlay = L.imageOverlay({{.ImageURL}}, bounds, {opacity: {{.Opacity}}, interactive: false}).addTo(map);
L.control.layers({"Base map": base}, { {{.LayerName}}: overlay }).addTo(map);
map.fitBounds(bounds);
{{- if .Legend}}
const legend = L.control({position: "bottomright"});
legend.onAdd = function () {
  return document.getElementById("legend");
};
legend.addTo(map);
{{- end}}
</script>
</body>
</html>
`))
