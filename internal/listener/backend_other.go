//go:build !linux

package listener

func platformBackend() backend { return portableBackend{} }
