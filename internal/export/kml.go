package export

import (
	"os"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/model"
)

var kmlTemplate = template.Must(template.New("kml").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Customer Locations</name>
    <description>Geocoded customer addresses</description>
{{- range .}}
    <Placemark>
      <name>{{.Name}}</name>
      <description><![CDATA[Customer ID: {{.CustomerID}}<br/>Address: {{.Address}}<br/>Provider: {{.Provider}}]]></description>
      <Point>
        <coordinates>{{.Longitude}},{{.Latitude}},0</coordinates>
      </Point>
    </Placemark>
{{- end}}
  </Document>
</kml>
`))

type kmlPlacemark struct {
	CustomerID string
	Name       string
	Address    string
	Provider   string
	Latitude   float64
	Longitude  float64
}

// WriteKML writes a placemark document of the geocoded customers. Customers
// without coordinates are skipped.
func WriteKML(customers []model.Customer, path string) error {
	placemarks := make([]kmlPlacemark, 0, len(customers))
	for _, c := range customers {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		placemarks = append(placemarks, kmlPlacemark{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Address:    c.Address,
			Provider:   strOrEmpty(c.GeoProvider),
			Latitude:   *c.Latitude,
			Longitude:  *c.Longitude,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	if err := kmlTemplate.Execute(f, placemarks); err != nil {
		return eris.Wrap(err, "export: render kml")
	}
	return nil
}
