package simulation

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Terrain is the ground type of an exploration tile.
type Terrain string

const (
	TerrainPlains   Terrain = "plains"
	TerrainForest   Terrain = "forest"
	TerrainHills    Terrain = "hills"
	TerrainWater    Terrain = "water"
	TerrainMountain Terrain = "mountain"
)

var terrains = []Terrain{TerrainPlains, TerrainPlains, TerrainForest, TerrainHills, TerrainWater, TerrainMountain}

// Tile is the derived content of one exploration cell.
type Tile struct {
	X, Y     int
	Terrain  Terrain
	Resource *ResourceRule // nil when the tile holds nothing to extract
}

// Buildable reports whether an extractor may stand on the tile.
func (t Tile) Buildable() bool {
	return t.Resource != nil && t.Terrain != TerrainWater
}

// TileAt derives a tile from the world seed. The same seed and coordinates
// always give the same tile.
func (r *Rules) TileAt(seed int64, x, y int) Tile {
	var key [24]byte
	binary.LittleEndian.PutUint64(key[0:], uint64(seed))
	binary.LittleEndian.PutUint64(key[8:], uint64(int64(x)))
	binary.LittleEndian.PutUint64(key[16:], uint64(int64(y)))
	sum := blake3.Sum256(key[:])

	t := Tile{X: x, Y: y, Terrain: terrains[int(sum[0])%len(terrains)]}
	if t.Terrain == TerrainWater {
		return t
	}

	ex := r.Exploration
	roll := int(binary.LittleEndian.Uint16(sum[1:3]) % 100)
	if roll >= ex.ResourceChancePercent || len(ex.Resources) == 0 {
		return t
	}
	total := 0
	for _, res := range ex.Resources {
		total += res.Weight
	}
	pick := int(binary.LittleEndian.Uint32(sum[4:8]) % uint32(total))
	for i := range ex.Resources {
		pick -= ex.Resources[i].Weight
		if pick < 0 {
			t.Resource = &ex.Resources[i]
			break
		}
	}
	return t
}

// pickIndex deterministically chooses an index in [0, n) from the seed and
// tick, for experiments.
func pickIndex(seed, tick int64, n int) int {
	var key [17]byte
	key[0] = 'x'
	binary.LittleEndian.PutUint64(key[1:], uint64(seed))
	binary.LittleEndian.PutUint64(key[9:], uint64(tick))
	sum := blake3.Sum256(key[:])
	return int(binary.LittleEndian.Uint64(sum[:8]) % uint64(n))
}
