package test

import (
	"github.com/shardsql/shardsql/engine/fatlock"
)

type Services struct {
	lockService fatlock.Service
}

func (svcs *Services) Init() {
	svcs.lockService.Init()
}

func (svcs *Services) LockService() fatlock.LockService {
	return &svcs.lockService
}
