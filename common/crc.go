// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the Dallas/Maxim CRC8 that protects 1-wire scratchpads.
package common

// CRC8Poly is the reflected Dallas/Maxim polynomial x^8+x^5+x^4+1.
const CRC8Poly = 0x8C

// CRC8Maxim calculates the Dallas/Maxim 8-bit CRC of the byte slice and
// returns it. Bits are fed LSB first, one at a time, the way the sensor
// computes it in silicon.
//
// A buffer whose last byte is the CRC of the preceding bytes yields 0 when
// passed as a whole.
func CRC8Maxim(bytes []byte) byte {
	var crc byte
	for _, val := range bytes {
		for range 8 {
			mix := (crc ^ val) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= CRC8Poly
			}
			val >>= 1
		}
	}
	return crc
}
