// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import "github.com/GermanBionicSystems/thermo/common"

// Family code of the specific device type
type Family byte

func (f Family) String() string {
	switch f {
	case DS18S20:
		return "DS18S20"
	case DS18B20:
		return "DS18B20"
	default:
		return "unknown"
	}
}

const DS18B20 Family = 0x28
const DS18S20 Family = 0x10

// ScratchpadLen is the size of the sensor scratchpad including its CRC.
const ScratchpadLen = 9

// legacyConfig is what a DS18S20 returns in place of the configuration
// register it does not have.
const legacyConfig = 0xff

// Scratchpad is the sensor register file as read from the bus:
//
//	0 temperature LSB   1 temperature MSB   2 TH   3 TL
//	4 configuration     5 reserved          6 COUNT REMAIN
//	7 COUNT PER °C      8 CRC
//
// Bytes 6 and 7 are only meaningful on a DS18S20.
type Scratchpad [ScratchpadLen]byte

// Valid reports whether the CRC byte matches the first eight bytes.
func (s *Scratchpad) Valid() bool {
	return s[8] == common.CRC8Maxim(s[:8])
}

// Family tells the sensor family apart by its configuration register.
func (s *Scratchpad) Family() Family {
	if s[4] == legacyConfig {
		return DS18S20
	}
	return DS18B20
}

// Raw returns the signed temperature register.
func (s *Scratchpad) Raw() int16 {
	return int16(s[1])<<8 | int16(s[0])
}

// Tenths decodes the temperature in tenths of a degree Celsius.
//
// The DS18B20 register holds 1/16°C. The DS18S20 holds 1/2°C, refined with
// the count registers:
//
//	T = TEMP_READ - 0.25 + (COUNT_PER_C - COUNT_REMAIN) / COUNT_PER_C
//
// computed in integer tenths, truncating each division. A zero COUNT_PER_C
// drops the fraction term, leaving TEMP_READ - 0.25.
// TODO: verify the DS18S20 rounding at exact half degrees on hardware.
func (s *Scratchpad) Tenths(f Family) int16 {
	raw := int32(s.Raw())
	if f == DS18S20 {
		remain := int32(s[6])
		perC := int32(s[7])
		coarse := (raw >> 1) * 10
		if perC == 0 {
			return int16(coarse - 2)
		}
		fine := ((perC - remain) * 10) / perC
		return int16(coarse - 2 + fine)
	}
	return int16((raw * 10) >> 4)
}
