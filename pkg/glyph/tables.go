package glyph

// standardGlyphs is the density ramp " .:-=+*#%@".
var standardGlyphs = [Levels]Bitmap{
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000}, // ' '
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b01100, 0b01100}, // .
	{0b00000, 0b00100, 0b00100, 0b00000, 0b00100, 0b00100, 0b00000}, // :
	{0b00000, 0b00000, 0b00000, 0b11111, 0b00000, 0b00000, 0b00000}, // -
	{0b00000, 0b00000, 0b11111, 0b00000, 0b11111, 0b00000, 0b00000}, // =
	{0b00100, 0b00100, 0b00100, 0b11111, 0b00100, 0b00100, 0b00100}, // +
	{0b00000, 0b10101, 0b01110, 0b11111, 0b01110, 0b10101, 0b00000}, // *
	{0b01010, 0b01010, 0b11111, 0b01010, 0b11111, 0b01010, 0b01010}, // #
	{0b11001, 0b11011, 0b00110, 0b01100, 0b11011, 0b10011, 0b00011}, // %
	{0b01110, 0b10001, 0b10111, 0b10101, 0b10111, 0b10000, 0b01111}, // @
}

var standardRunes = []rune(" .:-=+*#%@")

// blocksGlyphs goes from a lone pixel through checkerboards to a solid block.
var blocksGlyphs = [Levels]Bitmap{
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000},
	{0b00000, 0b00000, 0b00000, 0b00100, 0b00000, 0b00000, 0b00000},
	{0b00000, 0b01010, 0b00000, 0b00000, 0b00000, 0b01010, 0b00000},
	{0b10001, 0b00000, 0b00100, 0b00000, 0b10001, 0b00000, 0b00100},
	{0b10101, 0b00000, 0b10101, 0b00000, 0b10101, 0b00000, 0b10101},
	{0b10101, 0b01010, 0b10101, 0b01010, 0b10101, 0b01010, 0b10101},
	{0b00000, 0b00000, 0b00000, 0b11111, 0b11111, 0b11111, 0b11111},
	{0b11111, 0b10001, 0b10001, 0b10001, 0b10001, 0b10001, 0b11111},
	{0b11111, 0b11011, 0b10101, 0b11011, 0b10101, 0b11011, 0b11111},
	{0b11111, 0b11111, 0b11111, 0b11111, 0b11111, 0b11111, 0b11111},
}

var blocksRunes = []rune(" ·∙░▒▓▄□▣█")

// meshGlyphs are diagonal strokes building up to a dense lattice.
var meshGlyphs = [Levels]Bitmap{
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000},
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00010, 0b00000},
	{0b00000, 0b00000, 0b00000, 0b00010, 0b00100, 0b01000, 0b00000},
	{0b00001, 0b00001, 0b00010, 0b00100, 0b01000, 0b10000, 0b10000},
	{0b00000, 0b10001, 0b01010, 0b00100, 0b01010, 0b10001, 0b00000},
	{0b10010, 0b01001, 0b00100, 0b10010, 0b01001, 0b00100, 0b10010},
	{0b10001, 0b01010, 0b00100, 0b01010, 0b10001, 0b01010, 0b00100},
	{0b11011, 0b01110, 0b10101, 0b01110, 0b11011, 0b01110, 0b10101},
	{0b11111, 0b01010, 0b11111, 0b01010, 0b11111, 0b01010, 0b11111},
	{0b11111, 0b11011, 0b11111, 0b10101, 0b11111, 0b11011, 0b11111},
}

var meshRunes = []rune(" ·╱/X▚╳▒▦▩")

// digitalGlyphs are digits ordered by ink, with a blank at level 0.
var digitalGlyphs = [Levels]Bitmap{
	{0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000}, // ' '
	{0b00100, 0b01100, 0b00100, 0b00100, 0b00100, 0b00100, 0b01110}, // 1
	{0b11111, 0b00001, 0b00010, 0b00100, 0b01000, 0b01000, 0b01000}, // 7
	{0b00010, 0b00110, 0b01010, 0b10010, 0b11111, 0b00010, 0b00010}, // 4
	{0b01110, 0b10001, 0b00001, 0b00010, 0b00100, 0b01000, 0b11111}, // 2
	{0b11110, 0b00001, 0b00001, 0b01110, 0b00001, 0b00001, 0b11110}, // 3
	{0b01110, 0b10001, 0b10001, 0b01111, 0b00001, 0b00010, 0b01100}, // 9
	{0b00110, 0b01000, 0b10000, 0b11110, 0b10001, 0b10001, 0b01110}, // 6
	{0b11111, 0b10000, 0b11110, 0b00001, 0b00001, 0b10001, 0b01110}, // 5
	{0b01110, 0b10001, 0b10001, 0b01110, 0b10001, 0b10001, 0b01110}, // 8
}

var digitalRunes = []rune(" 174239658")
