package models

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"diagnostico/internal/evaluate"
)

const ArtifactVersion = 1

// Artifact é o arquivo produzido pelo treinador e lido pelo servidor.
type Artifact struct {
	Version   int
	Model     *LogisticRegression
	Features  []string
	Metrics   evaluate.Summary
	TrainedAt time.Time
	// Dataset identifica a origem dos dados de treino: caminho do CSV, "embutido/wdbc" ou "embutido/sintetico".
	Dataset string
}

func (a *Artifact) Validate(features []string) error {
	if a.Version != ArtifactVersion {
		return fmt.Errorf("versão de artefato %d não suportada (esperada %d)", a.Version, ArtifactVersion)
	}
	if a.Model == nil || len(a.Model.Coef) == 0 {
		return ErrNotFitted
	}
	if len(a.Model.Coef) != len(a.Features) {
		return fmt.Errorf("artefato tem %d coeficientes para %d características", len(a.Model.Coef), len(a.Features))
	}
	if features != nil && !slices.Equal(a.Features, features) {
		return fmt.Errorf("características do artefato %v diferem das esperadas %v", a.Features, features)
	}
	return nil
}

type codec interface {
	encode(w io.Writer, a *Artifact) error
	decode(r io.Reader, a *Artifact) error
}

type gobCodec struct{}

func (gobCodec) encode(w io.Writer, a *Artifact) error { return gob.NewEncoder(w).Encode(a) }
func (gobCodec) decode(r io.Reader, a *Artifact) error { return gob.NewDecoder(r).Decode(a) }

type msgpackCodec struct{}

func (msgpackCodec) encode(w io.Writer, a *Artifact) error { return msgpack.NewEncoder(w).Encode(a) }
func (msgpackCodec) decode(r io.Reader, a *Artifact) error { return msgpack.NewDecoder(r).Decode(a) }

// codecFor escolhe o formato pela extensão; gob é o padrão.
func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		return msgpackCodec{}
	default:
		return gobCodec{}
	}
}

// Save grava o artefato, substituindo qualquer arquivo existente no caminho.
func Save(path string, a *Artifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := codecFor(path).encode(f, a); err != nil {
		f.Close()
		return fmt.Errorf("serializar modelo: %w", err)
	}
	return f.Close()
}

func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var a Artifact
	if err := codecFor(path).decode(f, &a); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: arquivo vazio ou truncado", path)
		}
		return nil, fmt.Errorf("%s: desserializar modelo: %w", path, err)
	}
	return &a, nil
}
