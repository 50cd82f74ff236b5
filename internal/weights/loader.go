// Package weights reads a pretrained parameter set from a directory of
// binary matrix files.
//
// Each file holds one matrix: two little-endian uint32 words (row count,
// column count) followed by rows*cols IEEE-754 single-precision values in
// row-major order.
package weights

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/layers"
	"github.com/retrolm/retrolm/internal/logger"
	"github.com/retrolm/retrolm/internal/model"
	"github.com/retrolm/retrolm/internal/tensor"
)

// Files lists every matrix file a complete weight directory carries. The
// vocabulary head stores only its bias; its projection equals the token
// embeddings.
var Files = []string{
	"token_embed.bin",
	"pos_embed.bin",
	"Wq_weight.bin", "Wq_bias.bin",
	"Wk_weight.bin", "Wk_bias.bin",
	"Wv_weight.bin", "Wv_bias.bin",
	"Wo_weight.bin", "Wo_bias.bin",
	"W1_weight.bin", "W1_bias.bin",
	"W2_weight.bin", "W2_bias.bin",
	"lm_head_bias.bin",
}

// LoadMatrix reads a single matrix file.
func LoadMatrix(path string) (*tensor.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(fault.FileError, err, "open weight file")
	}
	defer f.Close()
	return readMatrix(f)
}

func readMatrix(r io.Reader) (*tensor.Mat, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fault.Wrap(fault.FileError, err, "read matrix header")
	}
	rows := binary.LittleEndian.Uint32(header[0:4])
	cols := binary.LittleEndian.Uint32(header[4:8])

	m, err := tensor.New(int(rows), int(cols))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4*cols)
	for i := 0; i < int(rows); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fault.Wrap(fault.FileError, err, "read matrix data")
		}
		row := m.Row(i)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
	}
	return m, nil
}

func loadFrom(dir, name string, log logger.Logger) (*tensor.Mat, error) {
	log.Debug("loading weight file", "file", name)
	m, err := LoadMatrix(filepath.Join(dir, name))
	if err != nil {
		return nil, fault.Wrap(fault.KindOf(err), err, name)
	}
	return m, nil
}

func loadLinear(dir, weightFile, biasFile string, log logger.Logger) (layers.Linear, error) {
	w, err := loadFrom(dir, weightFile, log)
	if err != nil {
		return layers.Linear{}, err
	}
	b, err := loadFrom(dir, biasFile, log)
	if err != nil {
		return layers.Linear{}, err
	}
	return layers.NewLinear(w, b)
}

// Load reads every weight file under dir and assembles the parameter set.
func Load(dir string, log logger.Logger) (*model.Parameters, error) {
	if dir == "" {
		return nil, fault.Errorf(fault.ValueError, "empty weights directory path")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fault.Wrap(fault.FileError, err, "stat weights directory")
	}
	if !info.IsDir() {
		return nil, fault.Errorf(fault.ValueError, "weights path %q is not a directory", dir)
	}

	start := time.Now()
	log.Info("loading model weights", "dir", dir)

	tokenEmbed, err := loadFrom(dir, "token_embed.bin", log)
	if err != nil {
		return nil, err
	}
	posEmbed, err := loadFrom(dir, "pos_embed.bin", log)
	if err != nil {
		return nil, err
	}

	wq, err := loadLinear(dir, "Wq_weight.bin", "Wq_bias.bin", log)
	if err != nil {
		return nil, err
	}
	wk, err := loadLinear(dir, "Wk_weight.bin", "Wk_bias.bin", log)
	if err != nil {
		return nil, err
	}
	wv, err := loadLinear(dir, "Wv_weight.bin", "Wv_bias.bin", log)
	if err != nil {
		return nil, err
	}
	wo, err := loadLinear(dir, "Wo_weight.bin", "Wo_bias.bin", log)
	if err != nil {
		return nil, err
	}

	ff1, err := loadLinear(dir, "W1_weight.bin", "W1_bias.bin", log)
	if err != nil {
		return nil, err
	}
	ff2, err := loadLinear(dir, "W2_weight.bin", "W2_bias.bin", log)
	if err != nil {
		return nil, err
	}

	lmHeadBias, err := loadFrom(dir, "lm_head_bias.bin", log)
	if err != nil {
		return nil, err
	}

	params, err := model.New(tokenEmbed, posEmbed,
		model.Attention{Wq: wq, Wk: wk, Wv: wv, Wo: wo},
		ff1, ff2, lmHeadBias)
	if err != nil {
		return nil, err
	}

	log.Info("model weights loaded",
		"vocab", params.Vocab(),
		"embed", params.Embed(),
		"ff", params.FFDim(),
		"max_seq_len", params.MaxSeqLen(),
		"duration", time.Since(start))
	return params, nil
}

// FileInfo describes one weight file for the inspector.
type FileInfo struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Bytes int64  `json:"bytes"`
}

// Inspect reads only the headers of every expected weight file.
func Inspect(dir string) ([]FileInfo, error) {
	infos := make([]FileInfo, 0, len(Files))
	for _, name := range Files {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, fault.Wrap(fault.FileError, err, "open weight file")
		}
		var header [8]byte
		_, err = io.ReadFull(f, header[:])
		stat, statErr := f.Stat()
		_ = f.Close()
		if err != nil {
			return nil, fault.Wrap(fault.FileError, err, name)
		}
		if statErr != nil {
			return nil, fault.Wrap(fault.FileError, statErr, name)
		}
		infos = append(infos, FileInfo{
			Name:  name,
			Rows:  int(binary.LittleEndian.Uint32(header[0:4])),
			Cols:  int(binary.LittleEndian.Uint32(header[4:8])),
			Bytes: stat.Size(),
		})
	}
	return infos, nil
}
