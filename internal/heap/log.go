package heap

import "go.uber.org/zap"

func zapFields(h *Heap) []zap.Field {
	return []zap.Field{
		zap.Uint64("collection", h.numCollections),
		zap.Uint64("free", h.free),
		zap.Uint64("capacity", h.max),
	}
}
