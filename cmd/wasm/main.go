//go:build js && wasm

package main

import (
	"bytes"
	"syscall/js"

	"eremore/pkg/eremore"
)

var lastResult *eremore.Image

func main() {
	js.Global().Set("developFITS", js.FuncOf(developFITS))
	js.Global().Set("renderHistogram", js.FuncOf(renderHistogram))
	select {} // block forever
}

// developFITS(fileBytes, options) returns PNG bytes. options uses the recipe
// keys, e.g. {tone_mapper: {engine: "gamma", gamma: 0.45}}.
func developFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: developFITS(fileBytes, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	recipe := eremore.DefaultRecipe()
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		applyOptions(&recipe, args[1])
	}
	if err := recipe.Validate(); err != nil {
		return errorResult("Recipe error: " + err.Error())
	}

	fitsData, err := eremore.ReadFitsFromBytes(fileBytes)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	img, err := fitsData.ToImage("browser")
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	if len(recipe.CameraWhiteBalance) == 3 {
		img.CameraWhiteBalance = recipe.CameraWhiteBalance
	}

	editor, err := recipe.BuildEditor(img, nil)
	if err != nil {
		return errorResult("Recipe error: " + err.Error())
	}
	out, err := editor.Run(img)
	if err != nil {
		return errorResult("Development error: " + err.Error())
	}
	lastResult = out

	var buf bytes.Buffer
	if err := eremore.EncodeImage(&buf, out.Pixels, eremore.FormatPNG); err != nil {
		return errorResult("Encoding error: " + err.Error())
	}
	return toUint8Array(buf.Bytes())
}

func renderHistogram(this js.Value, args []js.Value) interface{} {
	if lastResult == nil {
		return js.Null()
	}
	jpegBytes, err := eremore.RenderHistogramBytes(lastResult)
	if err != nil {
		return js.Null()
	}
	return toUint8Array(jpegBytes)
}

func applyOptions(r *eremore.Recipe, opts js.Value) {
	if v := section(opts, "demosaicer"); v.Truthy() {
		setString(v, "engine", &r.Demosaicer.Engine)
		setString(v, "blue_loc", &r.Demosaicer.BlueLoc)
	}
	if v := section(opts, "tone_mapper"); v.Truthy() {
		t := &r.ToneMapper
		setString(v, "engine", &t.Engine)
		setFloat(v, "input_black_level_correction", &t.InputBlackLevelCorrection)
		setFloat(v, "input_black_level", &t.InputBlackLevel)
		setFloat(v, "input_white_level", &t.InputWhiteLevel)
		setFloat(v, "output_black_level", &t.OutputBlackLevel)
		setFloat(v, "output_white_level", &t.OutputWhiteLevel)
		setFloat(v, "gamma", &t.Gamma)
	}
	if v := section(opts, "white_balancer"); v.Truthy() {
		setString(v, "engine", &r.WhiteBalancer.Engine)
		setFloat(v, "percentile", &r.WhiteBalancer.Percentile)
		setFloats(v, "scales", &r.WhiteBalancer.Scales)
		if n := v.Get("normalize"); n.Type() == js.TypeBoolean {
			r.WhiteBalancer.Normalize = n.Bool()
		}
	}
	if v := section(opts, "rotator"); v.Truthy() {
		setString(v, "engine", &r.Rotator.Engine)
		if k := v.Get("k"); k.Type() == js.TypeNumber {
			r.Rotator.K = k.Int()
		}
	}
	setFloats(opts, "camera_white_balance", &r.CameraWhiteBalance)
}

func section(opts js.Value, name string) js.Value {
	v := opts.Get(name)
	if v.Type() != js.TypeObject {
		return js.Null()
	}
	return v
}

// setString treats null as "drop the stage" for engine keys.
func setString(obj js.Value, key string, dst *string) {
	switch v := obj.Get(key); v.Type() {
	case js.TypeString:
		*dst = v.String()
	case js.TypeNull:
		*dst = ""
	}
}

func setFloat(obj js.Value, key string, dst *float64) {
	if v := obj.Get(key); v.Type() == js.TypeNumber {
		*dst = v.Float()
	}
}

func setFloats(obj js.Value, key string, dst *[]float64) {
	v := obj.Get(key)
	if !js.Global().Get("Array").Call("isArray", v).Bool() {
		return
	}
	n := v.Get("length").Int()
	out := make([]float64, n)
	for i := range out {
		e := v.Index(i)
		if e.Type() != js.TypeNumber {
			return
		}
		out[i] = e.Float()
	}
	*dst = out
}

func toUint8Array(b []byte) js.Value {
	uint8Array := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8Array, b)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
