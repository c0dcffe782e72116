package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/shagomeals/kds"
	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth already ran on the token, origin is not checked
	CheckOrigin: func(r *http.Request) bool { return true },
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// Connect upgrades a staff session to the branch event stream.
func (kc *KDSController) Connect(c *gin.Context) {
	rc := middlewares.Scope(c)
	if err := rc.StaffOfTenant(); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"branch": rc.Branch.ID}).Errorf("websocket upgrade failed: %v", err)
		return
	}
	kc.Hub.Serve(ws, rc.Branch.ID, rc.Actor.Role)
}
