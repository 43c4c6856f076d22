package handlers

import (
	"taskflow/domain/services"
	"taskflow/infrastructure/websocket"
	"taskflow/pkg/utils"
)

// Services ทุกอย่างที่ handler ต้องใช้ ประกอบใน di.Container
type Services struct {
	UserService services.UserService
	TaskService services.TaskService
	Tokens      *utils.TokenManager
	Hub         *websocket.Hub
}

type Handlers struct {
	AuthHandler      *AuthHandler
	UserHandler      *UserHandler
	TaskHandler      *TaskHandler
	WebSocketHandler *WebSocketHandler
}

func NewHandlers(services *Services) *Handlers {
	return &Handlers{
		AuthHandler:      NewAuthHandler(services.UserService),
		UserHandler:      NewUserHandler(services.UserService),
		TaskHandler:      NewTaskHandler(services.TaskService),
		WebSocketHandler: NewWebSocketHandler(services.Tokens, services.Hub),
	}
}
