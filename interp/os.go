// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"io/fs"
)

// access modes, mirroring the values of unix.Access. The sandbox has a
// single fixed identity that owns every file, so the owner, group, and
// other permission bits are all checked at once.
const (
	access_R_OK = 0b100
	access_W_OK = 0b010
	access_X_OK = 0b001
)

func (r *Runner) access(ctx context.Context, path string, mode uint32) error {
	info, err := r.stat(ctx, path)
	if err != nil {
		return err
	}
	perm := uint32(info.Mode().Perm())
	check := mode | mode<<3 | mode<<6 // any of other, group, owner
	if perm&check == 0 {
		return fs.ErrPermission
	}
	return nil
}
