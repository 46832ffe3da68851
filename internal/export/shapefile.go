package export

import (
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/model"
)

// WriteShapefile writes a point shapefile of the geocoded customers.
// Attribute values longer than the DBF field width are truncated by the
// writer. Customers without coordinates are skipped.
func WriteShapefile(customers []model.Customer, path string) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.StringField("CUST_ID", 32),
		shp.StringField("NAME", 64),
		shp.StringField("ADDRESS", 128),
		shp.StringField("PROVIDER", 16),
		shp.FloatField("CONFIDENCE", 8, 3),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	row := 0
	for _, c := range customers {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		w.Write(&shp.Point{X: *c.Longitude, Y: *c.Latitude})

		confidence := 0.0
		if c.GeoConfidence != nil {
			confidence = *c.GeoConfidence
		}
		attrs := []interface{}{c.CustomerID, c.Name, c.Address, strOrEmpty(c.GeoProvider), confidence}
		for i, v := range attrs {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "export: write attribute row %d", row)
			}
		}
		row++
	}
	return nil
}
