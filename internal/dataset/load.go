package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load lê o conjunto canônico do disco. Formatos aceitos:
//   - UCI wdbc.data: id,diagnóstico(M|B),30 colunas, sem cabeçalho;
//   - breast_cancer.csv do scikit-learn: linha "n,d,malignant,benign" e depois 30 colunas + alvo;
//   - CSV com cabeçalho contendo uma coluna "target" e colunas nomeadas.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv vazio")
	}

	var ds *Dataset
	switch first := rows[0]; {
	case len(first) == 32 && (first[1] == "M" || first[1] == "B"):
		ds, err = readWDBC(rows)
	case len(first) >= 4 && isInt(first[0]) && isInt(first[1]):
		ds, err = readSklearn(rows[1:])
	default:
		ds, err = readHeadered(rows)
	}
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func readWDBC(rows [][]string) (*Dataset, error) {
	ds := &Dataset{FeatureNames: append([]string(nil), FeatureNames...)}
	for i, row := range rows {
		if len(row) != 32 {
			return nil, fmt.Errorf("linha %d: esperadas 32 colunas, obtidas %d", i+1, len(row))
		}
		var y int
		switch row[1] {
		case "M":
			y = Malignant
		case "B":
			y = Benign
		default:
			return nil, fmt.Errorf("linha %d: diagnóstico desconhecido %q", i+1, row[1])
		}
		v, err := parseRow(row[2:])
		if err != nil {
			return nil, fmt.Errorf("linha %d: %w", i+1, err)
		}
		ds.X = append(ds.X, v)
		ds.Y = append(ds.Y, y)
	}
	return ds, nil
}

func readSklearn(rows [][]string) (*Dataset, error) {
	ds := &Dataset{FeatureNames: append([]string(nil), FeatureNames...)}
	for i, row := range rows {
		if len(row) != 31 {
			return nil, fmt.Errorf("linha %d: esperadas 31 colunas, obtidas %d", i+2, len(row))
		}
		v, err := parseRow(row[:30])
		if err != nil {
			return nil, fmt.Errorf("linha %d: %w", i+2, err)
		}
		y, err := strconv.Atoi(row[30])
		if err != nil {
			return nil, fmt.Errorf("linha %d: alvo inválido: %w", i+2, err)
		}
		ds.X = append(ds.X, v)
		ds.Y = append(ds.Y, y)
	}
	return ds, nil
}

func readHeadered(rows [][]string) (*Dataset, error) {
	hdr := rows[0]
	target := -1
	names := make([]string, 0, len(hdr))
	cols := make([]int, 0, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if h == "target" {
			target = i
			continue
		}
		names = append(names, h)
		cols = append(cols, i)
	}
	if target < 0 {
		return nil, errors.New(`cabeçalho sem coluna "target"`)
	}
	ds := &Dataset{FeatureNames: names}
	for i, row := range rows[1:] {
		if len(row) != len(hdr) {
			return nil, fmt.Errorf("linha %d: esperadas %d colunas, obtidas %d", i+2, len(hdr), len(row))
		}
		v := make([]float64, len(cols))
		for k, c := range cols {
			f, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("linha %d, coluna %q: %w", i+2, hdr[c], err)
			}
			v[k] = f
		}
		y, err := strconv.Atoi(strings.TrimSpace(row[target]))
		if err != nil {
			return nil, fmt.Errorf("linha %d: alvo inválido: %w", i+2, err)
		}
		ds.X = append(ds.X, v)
		ds.Y = append(ds.Y, y)
	}
	return ds, nil
}

func parseRow(fields []string) ([]float64, error) {
	v := make([]float64, len(fields))
	for i, s := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
