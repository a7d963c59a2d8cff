//go:build linux

package logger

import "golang.org/x/sys/unix"

const termiosRequest = unix.TCGETS
