package models

import "errors"

var ErrInvalidVintage = errors.New("invalid vintage")
