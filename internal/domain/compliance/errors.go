package compliance

import "errors"

var ErrTrackingNotFound = errors.New("compliance tracking not found")
