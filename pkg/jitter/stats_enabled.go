//go:build !nojbufstats

package jitter

const statsEnabled = true
