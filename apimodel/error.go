package apimodel

import "strconv"

type ErrorMessage struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

func (e *ErrorMessage) Error() string {
	if e.ErrMessage != "" {
		return strconv.Itoa(e.ErrStatusCode) + ":" + e.ErrMessage
	}
	return strconv.Itoa(e.ErrStatusCode)
}
