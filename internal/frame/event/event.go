package event

// ApiEvent carries a control api request into the update loop, which
// answers on Result once the request has been handled.
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventRefreshData struct{}
