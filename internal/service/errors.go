package service

import "errors"

// ErrSaveFailed - слой сохранения не вернул ID истории.
var ErrSaveFailed = errors.New("story save failed")
