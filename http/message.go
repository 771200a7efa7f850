package http

import "time"

const (
	OK       int = 200
	Created  int = 201
	BadReq   int = 400
	NotFound int = 404
	Error    int = 500
)

// Message 统一响应体
type Message struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data any       `json:"data"`
	Time time.Time `json:"time"`
}

func SuccessMessage(data any) *Message {
	return &Message{
		Code: OK,
		Data: data,
		Time: time.Now(),
	}
}

// CreatedMessage 创建成功
func CreatedMessage(data any) *Message {
	return &Message{
		Code: Created,
		Data: data,
		Time: time.Now(),
	}
}

// ErrorMessage 错误响应，details 非空时放入 Data
func ErrorMessage(code int, msg string, details ...map[string]any) *Message {
	m := &Message{
		Code: code,
		Msg:  msg,
		Time: time.Now(),
	}
	if len(details) > 0 && len(details[0]) > 0 {
		m.Data = details[0]
	}
	return m
}
