// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/GermanBionicSystems/thermo/common"
	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// Frame delimiters. A frame is
//
//	START stuffed(len payload crc) END
//
// where payload is a CBOR array, len its size and crc the Dallas/Maxim CRC-8
// of len and payload. START, END and ESC bytes inside the frame are sent as
// ESC followed by the byte XOR escXor.
const (
	StartByte = 0x7e
	EndByte   = 0x7f
	EscByte   = 0x7d
	escXor    = 0x20

	// MaxPayload is the largest CBOR payload a frame carries.
	MaxPayload = 255
)

// Frame kinds.
const (
	kindTemperature = 1
	kindFault       = 2
)

// frame is the CBOR payload: [kind, unix ms, tenths, family, elapsed µs].
type frame struct {
	_       struct{} `cbor:",toarray"`
	Kind    uint8
	Time    int64
	Tenths  int16
	Family  uint8
	Elapsed int64
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// EncodeFrame returns r as a complete frame.
func EncodeFrame(r *Record) ([]byte, error) {
	f := frame{
		Kind:    kindTemperature,
		Tenths:  int16(r.Reading),
		Family:  uint8(r.Family),
		Elapsed: r.Elapsed.Microseconds(),
	}
	if r.Reading.Err() != nil {
		f.Kind = kindFault
	}
	if !r.Time.IsZero() {
		f.Time = r.Time.UnixMilli()
	}
	payload, err := encMode.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("report: failed to encode CBOR: %w", err)
	}
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("report: CBOR payload too large: %d bytes", len(payload))
	}
	data := make([]byte, 0, len(payload)+2)
	data = append(data, byte(len(payload)))
	data = append(data, payload...)
	data = append(data, common.CRC8Maxim(data))

	out := make([]byte, 0, 2*len(data)+2)
	out = append(out, StartByte)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			out = append(out, EscByte, b^escXor)
		} else {
			out = append(out, b)
		}
	}
	return append(out, EndByte), nil
}

// DecodeFrame parses one complete frame, delimiters included.
func DecodeFrame(b []byte) (*Record, error) {
	if len(b) < 2 || b[0] != StartByte || b[len(b)-1] != EndByte {
		return nil, errors.New("report: missing frame delimiters")
	}
	data := make([]byte, 0, len(b))
	esc := false
	for _, c := range b[1 : len(b)-1] {
		switch {
		case esc:
			data = append(data, c^escXor)
			esc = false
		case c == EscByte:
			esc = true
		case c == StartByte || c == EndByte:
			return nil, fmt.Errorf("report: unescaped delimiter %#x in frame", c)
		default:
			data = append(data, c)
		}
	}
	if esc {
		return nil, errors.New("report: incomplete escape sequence at end of frame")
	}
	if len(data) < 2 || int(data[0]) != len(data)-2 {
		return nil, fmt.Errorf("report: frame length mismatch")
	}
	if common.CRC8Maxim(data) != 0 {
		return nil, errors.New("report: incorrect frame CRC")
	}
	var f frame
	if err := cbor.Unmarshal(data[1:len(data)-1], &f); err != nil {
		return nil, fmt.Errorf("report: failed to decode CBOR: %w", err)
	}
	r := &Record{
		Reading: ds18b20.Reading(f.Tenths),
		Family:  ds18b20.Family(f.Family),
		Elapsed: time.Duration(f.Elapsed) * time.Microsecond,
	}
	if f.Time != 0 {
		r.Time = time.UnixMilli(f.Time)
	}
	switch f.Kind {
	case kindTemperature:
		if r.Reading.Err() != nil {
			return nil, fmt.Errorf("report: temperature frame carries status %d", f.Tenths)
		}
	case kindFault:
		if r.Reading.Err() == nil {
			return nil, fmt.Errorf("report: fault frame carries temperature %d", f.Tenths)
		}
	default:
		return nil, fmt.Errorf("report: unknown frame kind %d", f.Kind)
	}
	return r, nil
}

// Frames is a Sink writing one frame per record.
type Frames struct {
	w io.WriteCloser
}

// NewFrames returns a Frames writing to w. Close closes w.
func NewFrames(w io.WriteCloser) *Frames {
	return &Frames{w: w}
}

func (f *Frames) String() string {
	return "Frames"
}

// Write implements Sink. The frame is passed to w in a single call, so a
// message oriented w sees one frame per message.
func (f *Frames) Write(r *Record) error {
	b, err := EncodeFrame(r)
	if err != nil {
		return err
	}
	_, err = f.w.Write(b)
	return err
}

// Close implements Sink.
func (f *Frames) Close() error {
	return f.w.Close()
}

var _ Sink = &Frames{}
