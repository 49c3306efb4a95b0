package warehouse

import (
	"github.com/sirupsen/logrus"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/loader"
	"github.com/minhtam/ordersight/internal/models"
)

// BuildFromFiles runs the full refresh cycle against the configured CSV
// snapshots: load each source, decode it, reconcile. A source that fails to
// decode is reported and treated as empty, the pipeline still runs with
// whatever remains.
func BuildFromFiles(data *config.DataConfig) []models.OrderLine {
	web := decodeOrdersSafe(loader.Load(nil, data.WebOrdersPath(), "web orders"), "web orders")
	app := decodeOrdersSafe(loader.Load(nil, data.AppOrdersPath(), "app orders"), "app orders")

	items, err := loader.DecodeItems(loader.Load(nil, data.ItemsPath(), "items"))
	if err != nil {
		logrus.WithField("source", "items").Errorf("failed to decode: %v", err)
		items = nil
	}
	channels, err := loader.DecodeChannels(loader.Load(nil, data.ChannelsPath(), "channels"))
	if err != nil {
		logrus.WithField("source", "channels").Errorf("failed to decode: %v", err)
		channels = nil
	}

	return Reconcile(web, app, items, channels)
}

func decodeOrdersSafe(t loader.Table, label string) []models.Order {
	orders, err := loader.DecodeOrders(t)
	if err != nil {
		logrus.WithField("source", label).Errorf("failed to decode: %v", err)
		return nil
	}
	return orders
}
