package world

import (
	"bytes"
	"fmt"
	"os"
)

// ParseMap builds a Geography from the ASCII map format.
//
// A w×h map is 2h+1 lines of 2w+1 characters. The tile (x, y) sits at column
// 2x+1 of line 2y+1; '+' there marks a road, anything else default terrain.
// Its walls are '-' directly above and below the centre and '|' directly left
// and right of it. Trailing blank lines and CRLF line endings are accepted.
func ParseMap(data []byte) (*Geography, error) {
	lines := bytes.Split(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")), []byte("\n"))
	for len(lines) > 0 && len(bytes.TrimSpace(lines[len(lines)-1])) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 3 || len(lines)%2 == 0 {
		return nil, fmt.Errorf("parse map: need an odd number of lines >= 3, got %d", len(lines))
	}
	rowLen := len(lines[0])
	if rowLen < 3 || rowLen%2 == 0 {
		return nil, fmt.Errorf("parse map: need an odd line length >= 3, got %d", rowLen)
	}
	for i, line := range lines {
		if len(line) != rowLen {
			return nil, fmt.Errorf("parse map: line %d has length %d, want %d", i+1, len(line), rowLen)
		}
	}

	width := (rowLen - 1) / 2
	height := (len(lines) - 1) / 2
	at := func(row, col int) byte { return lines[row][col] }

	tiles := make([][]Tile, width)
	for x := 0; x < width; x++ {
		col := make([]Tile, height)
		for y := 0; y < height; y++ {
			cx, cy := 2*x+1, 2*y+1
			cost := CostDefault
			if at(cy, cx) == '+' {
				cost = CostRoad
			}
			col[y] = Tile{
				Cost: cost,
				Walls: [4]bool{
					at(cy-1, cx) == '-',
					at(cy, cx+1) == '|',
					at(cy+1, cx) == '-',
					at(cy, cx-1) == '|',
				},
			}
		}
		tiles[x] = col
	}

	return NewGeography(width, height, tiles)
}

// LoadMap reads and parses a map file.
func LoadMap(path string) (*Geography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	g, err := ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", path, err)
	}
	return g, nil
}
