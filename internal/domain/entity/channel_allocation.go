package entity

import "sort"

// ChannelAllocations cantidades apartadas por canal de venta (channelID -> cantidad).
// Vive embebida en StockRecord; solo el agregado la modifica.
type ChannelAllocations map[string]int64

// Get devuelve la cantidad asignada al canal (0 si no existe).
func (a ChannelAllocations) Get(channelID string) int64 {
	return a[channelID]
}

// Sum total apartado en todos los canales.
func (a ChannelAllocations) Sum() int64 {
	var sum int64
	for _, qty := range a {
		sum += qty
	}
	return sum
}

// Channels devuelve los IDs de canal ordenados.
func (a ChannelAllocations) Channels() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone copia el mapa; nunca devuelve nil.
func (a ChannelAllocations) Clone() ChannelAllocations {
	out := make(ChannelAllocations, len(a))
	for id, qty := range a {
		out[id] = qty
	}
	return out
}

func (a ChannelAllocations) add(channelID string, qty int64) {
	a[channelID] += qty
}

// remove asume que el llamador ya validó a[channelID] >= qty.
func (a ChannelAllocations) remove(channelID string, qty int64) {
	left := a[channelID] - qty
	if left == 0 {
		delete(a, channelID)
		return
	}
	a[channelID] = left
}
