// Package dataset - Flat CSV annotation loading.
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/JoDeMiro/go-detlab/boxes"
)

// csvColumns is the flat annotation layout, one object per row.
var csvColumns = []string{"image", "label", "x1", "y1", "x2", "y2"}

// LoadCSV reads annotations from the flat CSV layout
//
//	image,label,x1,y1,x2,y2
//
// with no header row, one annotated object per line. Rows sharing an image
// name collapse into a single frame, and the label table is built in
// first-seen order. This is the layout the Caltech-style airplane and
// motorbike annotation files ship in.
//
// Arguments:
//   - path: The CSV file path.
//
// Returns:
//   - *Set: The grouped annotation set, named after the file.
//   - error: An error if the file is unreadable or a row is malformed.
func LoadCSV(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening csv %s", path)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(false),
		dataframe.Names(csvColumns...),
		dataframe.WithTypes(map[string]series.Type{
			"image": series.String,
			"label": series.String,
			"x1":    series.Float,
			"y1":    series.Float,
			"x2":    series.Float,
			"y2":    series.Float,
		}),
	)
	if df.Error() != nil {
		return nil, errors.Wrapf(df.Error(), "parsing csv %s", path)
	}

	set := &Set{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	images := df.Col("image").Records()
	labels := df.Col("label").Records()
	x1 := df.Col("x1").Float()
	y1 := df.Col("y1").Float()
	x2 := df.Col("x2").Float()
	y2 := df.Col("y2").Float()

	// Group rows by image, preserving first-seen frame order.
	frameIdx := make(map[string]int, len(images))
	for i := 0; i < df.Nrow(); i++ {
		annotation := Annotation{
			Label: labels[i],
			Class: set.ClassIndex(labels[i]),
			Box: boxes.Box{
				X1: float32(x1[i]),
				Y1: float32(y1[i]),
				X2: float32(x2[i]),
				Y2: float32(y2[i]),
			},
		}

		idx, seen := frameIdx[images[i]]
		if !seen {
			idx = len(set.Frames)
			frameIdx[images[i]] = idx
			set.Frames = append(set.Frames, Frame{Image: images[i]})
		}
		set.Frames[idx].Objects = append(set.Frames[idx].Objects, annotation)
	}

	return set, nil
}

// DataFrame flattens the set back into the one-row-per-object table form,
// for summary statistics and CSV export.
//
// Returns:
//   - dataframe.DataFrame: Columns image, label, x1, y1, x2, y2.
func (s *Set) DataFrame() dataframe.DataFrame {
	n := s.TotalObjects()
	images := make([]string, 0, n)
	labels := make([]string, 0, n)
	x1 := make([]float64, 0, n)
	y1 := make([]float64, 0, n)
	x2 := make([]float64, 0, n)
	y2 := make([]float64, 0, n)

	for _, frame := range s.Frames {
		for _, obj := range frame.Objects {
			images = append(images, frame.Image)
			labels = append(labels, obj.Label)
			x1 = append(x1, float64(obj.Box.X1))
			y1 = append(y1, float64(obj.Box.Y1))
			x2 = append(x2, float64(obj.Box.X2))
			y2 = append(y2, float64(obj.Box.Y2))
		}
	}

	return dataframe.New(
		series.New(images, series.String, "image"),
		series.New(labels, series.String, "label"),
		series.New(x1, series.Float, "x1"),
		series.New(y1, series.Float, "y1"),
		series.New(x2, series.Float, "x2"),
		series.New(y2, series.Float, "y2"),
	)
}
