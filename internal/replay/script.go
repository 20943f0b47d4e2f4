package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// Duration は "16ms" のような文字列で書ける time.Duration です。
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"16ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Frame は同じ入力と経過時間で repeat 回 Tick することを表します。
// 入力は最初の1回にだけ渡されます。
type Frame struct {
	DT     Duration            `json:"dt"`
	Inputs []tetris.InputEvent `json:"inputs,omitempty"`
	Repeat int                 `json:"repeat,omitempty"`
}

// Script はヘッドレス再生用の入力列です。
type Script struct {
	Seed   int64   `json:"seed"`
	Frames []Frame `json:"frames"`
}

// Load はJSONのスクリプトを読み込んで検証します。
func Load(r io.Reader) (*Script, error) {
	var script Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// LoadFile は path のスクリプトを読み込みます。
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate はスクリプトが再生可能かどうかを確認します。
func (s *Script) Validate() error {
	if len(s.Frames) == 0 {
		return errors.New("script has no frames")
	}
	for i, f := range s.Frames {
		if f.DT < 0 {
			return fmt.Errorf("frame %d: dt must not be negative", i)
		}
		if f.Repeat < 0 {
			return fmt.Errorf("frame %d: repeat must not be negative", i)
		}
	}
	return nil
}
