//go:build js && wasm

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/pipeline"
)

// GenerateRequest represents a texture generation request from JS.
// Zero fields keep their defaults.
type GenerateRequest struct {
	Variant string `json:"variant"`
	Seed    int64  `json:"seed"`
	Size    int    `json:"size"`
	Points  int    `json:"points"`
	Rounds  int    `json:"rounds"`
	Invert  bool   `json:"invert"`
}

func (r GenerateRequest) config() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if r.Variant != "" {
		cfg.Variant = r.Variant
	}
	if r.Seed != 0 {
		cfg.Seed = r.Seed
	}
	if r.Size > 0 {
		cfg.Size = r.Size
	}
	if r.Points > 0 {
		cfg.Points = r.Points
	}
	if r.Rounds > 0 {
		cfg.Rounds = r.Rounds
	}
	cfg.Invert = r.Invert
	cfg.Workers = 1
	return cfg
}

// generateTexture runs the full pipeline in the browser and returns the final
// texture as a PNG data URL.
func generateTexture(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	var req GenerateRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("failed to parse request: %v", err)}
	}

	res, err := pipeline.NewGenerator(nil).Generate(context.Background(), req.config())
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	data, err := output.EncodeBytes(res.Final(), output.DefaultOptions())
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	return map[string]interface{}{
		"dataUrl": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		"size":    res.Config.Size,
	}
}

func initModule(this js.Value, args []js.Value) interface{} {
	fmt.Println("seamlesstex WASM module initialized")
	return map[string]interface{}{"status": "ready", "variants": len(pipeline.Variants)}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("seamlesstexGenerate", js.FuncOf(generateTexture))
	js.Global().Set("seamlesstexInit", js.FuncOf(initModule))

	fmt.Println("seamlesstex WASM module loaded")
	<-c
}
