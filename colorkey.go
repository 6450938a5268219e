// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"

	"github.com/gogpu/surfcache/convert"
)

// KeyFlags select a color key role and report which keys are set.
type KeyFlags uint32

const (
	KeyDestBlt KeyFlags = 1 << iota
	KeyDestOverlay
	KeySrcOverlay
	KeySrcBlt
	// KeyColorSpace asks for a color-space key. Not supported.
	KeyColorSpace
)

type keyRole int

const (
	roleDestBlt keyRole = iota
	roleDestOverlay
	roleSrcOverlay
	roleSrcBlt
	keyRoleCount
)

var keyRoles = [keyRoleCount]KeyFlags{KeyDestBlt, KeyDestOverlay, KeySrcOverlay, KeySrcBlt}

// SetColorKey sets or, with a nil key, clears the key for the role in
// flags. Exactly one role must be named. The texture picks up a changed
// source key on its next load.
func (s *Surface) SetColorKey(flags KeyFlags, key *convert.ColorKey) error {
	if flags&KeyColorSpace != 0 {
		return fmt.Errorf("set color key: color space keys: %w", ErrInvalidCall)
	}
	role, ok := roleOf(flags)
	if !ok {
		return fmt.Errorf("set color key %#x: %w", uint32(flags), ErrInvalidCall)
	}
	bit := keyRoles[role]
	if key == nil {
		s.keyFlags &^= bit
		return nil
	}
	s.keys[role] = *key
	s.keyFlags |= bit
	return nil
}

// ColorKey returns the key for the role in flags. ok is false when the
// key is not set.
func (s *Surface) ColorKey(flags KeyFlags) (key convert.ColorKey, ok bool) {
	role, valid := roleOf(flags)
	if !valid || s.keyFlags&keyRoles[role] == 0 {
		return convert.ColorKey{}, false
	}
	return s.keys[role], true
}

// KeyFlags returns the set key roles.
func (s *Surface) KeyFlags() KeyFlags { return s.keyFlags }

func roleOf(flags KeyFlags) (keyRole, bool) {
	for i, b := range keyRoles {
		if flags == b {
			return keyRole(i), true
		}
	}
	return 0, false
}

func (s *Surface) srcKeyed() bool { return s.keyFlags&KeySrcBlt != 0 }
