//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/speakeasy-api/cnx"
	"github.com/speakeasy-api/cnx/pkg/playground"
)

// ClassNames serializes a JSON array of inputs into a class string.
func ClassNames(jsonInputs string) (string, error) {
	var inputs []any
	if err := json.Unmarshal([]byte(jsonInputs), &inputs); err != nil {
		return "", fmt.Errorf("failed to parse JSON input: %w", err)
	}
	for i, in := range inputs {
		inputs[i] = cnx.FromNative(in)
	}
	return cnx.ClassNames(inputs...), nil
}

// promisify exposes fn to JavaScript as a function returning a Promise that
// settles with fn's result or rejects with an Error.
func promisify(fn func(args []js.Value) (string, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		executor := js.FuncOf(func(this js.Value, settle []js.Value) any {
			resolve, reject := settle[0], settle[1]
			go func() {
				out, err := fn(args)
				if err != nil {
					reject.Invoke(js.Global().Get("Error").New(err.Error()))
					return
				}
				resolve.Invoke(out)
			}()
			return nil
		})
		return js.Global().Get("Promise").New(executor)
	})
}

func main() {
	js.Global().Set("CnxEvaluate", promisify(func(args []js.Value) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("CnxEvaluate: expected 1 arg (document), got %v", len(args))
		}

		return playground.Evaluate(args[0].String())
	}))

	js.Global().Set("CnxClassNames", promisify(func(args []js.Value) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("CnxClassNames: expected 1 arg (jsonInputs), got %v", len(args))
		}

		return ClassNames(args[0].String())
	}))

	js.Global().Set("CnxEvaluatePipeline", promisify(func(args []js.Value) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("CnxEvaluatePipeline: expected 1 arg (document), got %v", len(args))
		}

		result, err := playground.EvaluatePipeline(args[0].String())
		if err != nil {
			return "", err
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("failed to marshal pipeline result: %w", err)
		}

		return string(jsonBytes), nil
	}))

	// Keep the program running
	<-make(chan bool)
}
