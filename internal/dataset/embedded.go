package dataset

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
)

const (
	SourceWDBC      = "wdbc"
	SourceSynthetic = "sintetico"
)

const wdbcFile = "data/wdbc.data"

//go:embed data
var embedded embed.FS

// BreastCancer devolve o conjunto embutido no binário: o wdbc.data da UCI quando
// data/wdbc.data existe no build, senão o conjunto de Synthetic. BuiltinSource diz qual.
func BreastCancer() *Dataset {
	b, err := embedded.ReadFile(wdbcFile)
	if err != nil {
		return Synthetic()
	}
	ds, err := Read(bytes.NewReader(b))
	if err != nil {
		// o arquivo faz parte do binário; se não lê, o build está quebrado.
		panic(fmt.Sprintf("%s embutido inválido: %v", wdbcFile, err))
	}
	return ds
}

func BuiltinSource() string {
	if _, err := fs.Stat(embedded, wdbcFile); err != nil {
		return SourceSynthetic
	}
	return SourceWDBC
}
