package features

import "context"

// GetUserID returns the signed-in user's id.
func (f *Features) GetUserID(ctx context.Context) (string, error) {
	var id string
	err := f.request(ctx, ChannelGetUserID, nil, &id)
	return id, err
}

// GetWidgetID returns the id of the widget instance hosting this surface.
func (f *Features) GetWidgetID(ctx context.Context) (string, error) {
	var id string
	err := f.request(ctx, ChannelGetWidgetID, nil, &id)
	return id, err
}
