package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-verify/internal/geo"
	"github.com/sells-group/parcel-verify/internal/parcel"
)

// Shapefile attribute columns mapped onto survey record fields. Columns not
// listed here are carried through under their lower-cased name.
var shapefileColumns = map[string]string{
	"fmb_id":   parcel.FieldSurveyID,
	"fmbid":    parcel.FieldSurveyID,
	"area_ha":  parcel.FieldAreaHectares,
	"state":    parcel.FieldState,
	"district": parcel.FieldDistrict,
}

// readShapefile converts the first polygon record of a shapefile into a
// survey document. Parts become polygon rings in file order.
func readShapefile(path string) ([]byte, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		if mapped, ok := shapefileColumns[name]; ok {
			name = mapped
		}
		names[i] = name
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		rings := shapeRings(shape)
		if len(rings) == 0 {
			skipped++
			continue
		}

		doc := make(map[string]any, len(names)+1)
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			doc[name] = attributeValue(name, val)
		}

		g, err := geo.PolygonGeometry(rings)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: shapefile %s", path)
		}
		doc[parcel.FieldGeometry] = g

		if skipped > 0 {
			zap.L().Debug("ingest: skipped non-polygon shapefile records",
				zap.String("path", path),
				zap.Int("skipped", skipped),
			)
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: encode shapefile %s", path)
		}
		return data, nil
	}

	return nil, eris.Errorf("ingest: shapefile %s has no polygon records", path)
}

// attributeValue keeps dBase text as a string except for the area column,
// which is emitted as a number when it parses. An unparseable area stays a
// string so the record decoder reports it.
func attributeValue(field, val string) any {
	if field != parcel.FieldAreaHectares {
		return val
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return val
	}
	return f
}

// shapeRings returns the XY rings of a polygon shape, or nil for any other
// shape type.
func shapeRings(s shp.Shape) [][]geom.Coord {
	switch p := s.(type) {
	case *shp.Polygon:
		return splitParts(p.Parts, p.Points)
	case *shp.PolygonZ:
		return splitParts(p.Parts, p.Points)
	case *shp.PolygonM:
		return splitParts(p.Parts, p.Points)
	default:
		return nil
	}
}

func splitParts(parts []int32, points []shp.Point) [][]geom.Coord {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	rings := make([][]geom.Coord, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			return nil
		}
		ring := make([]geom.Coord, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
