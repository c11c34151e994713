//go:build !linux || !cgo

package gpu

import "errors"

func openNVML() (nvmlLib, error) {
	return nil, errors.New("NVML is not supported in this build")
}
