package shader

// Vertex draws the fullscreen quad shared by every pass
const Vertex = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;

out vec2 TexCoord;

void main() {
    gl_Position = vec4(aPos, 1.0);
    TexCoord = aTexCoord;
}
`

// identityTemplate traces the pattern-tagged spheres and writes id/N into the
// red channel. Rows are addressed top-down like the CPU images, so texture
// row r holds image row r.
const identityTemplate = `
#version 410 core
#define PATTERN_DIVISOR {{.Divisor}}
#define MAX_OBJECTS {{.MaxObjects}}

out vec4 FragColor;

uniform mat4 invViewProj;
uniform vec3 cameraPos;
uniform vec2 resolution;
uniform int objectCount;
uniform vec4 spheres[MAX_OBJECTS]; // xyz centre, w radius
uniform int patterns[MAX_OBJECTS];

vec3 unproject(vec2 ndc, float z) {
    vec4 p = invViewProj * vec4(ndc, z, 1.0);
    return p.xyz / p.w;
}

float intersectSphere(vec3 ro, vec3 rd, vec4 s) {
    vec3 oc = ro - s.xyz;
    float b = dot(oc, rd);
    float c = dot(oc, oc) - s.w * s.w;
    float disc = b * b - c;
    if (disc < 0.0) {
        return -1.0;
    }
    float sq = sqrt(disc);
    float t = -b - sq;
    if (t <= {{.Bias}}) {
        t = -b + sq;
    }
    return t > {{.Bias}} ? t : -1.0;
}

void main() {
    vec2 ndc = vec2(2.0 * gl_FragCoord.x / resolution.x - 1.0,
                    1.0 - 2.0 * gl_FragCoord.y / resolution.y);
    vec3 rd = normalize(unproject(ndc, 1.0) - unproject(ndc, -1.0));

    float best = 1e30;
    int id = 0;
    for (int i = 0; i < objectCount && i < MAX_OBJECTS; i++) {
        float t = intersectSphere(cameraPos, rd, spheres[i]);
        if (t > 0.0 && t < best) {
            best = t;
            id = patterns[i];
        }
    }

    FragColor = vec4(float(clamp(id, 0, int(PATTERN_DIVISOR) - 1)) / PATTERN_DIVISOR, 0.0, 0.0, 1.0);
}
`

// compositeTemplate is the glyph compositing pass. It mirrors
// engine.ShadePixel; the glyph tables and constants are generated from Go.
const compositeTemplate = `
#version 410 core
#define PATTERN_DIVISOR {{.Divisor}}
#define GLYPH_W {{.GlyphWidth}}
#define GLYPH_H {{.GlyphHeight}}
#define LEVELS {{.Levels}}
#define NUM_TABLES {{.NumTables}}
#define DIGITAL {{.Digital}}
#define MATRIX_CYCLE {{.MatrixCycle}}
#define MATRIX_RAIN {{.MatrixRain}}

in vec2 TexCoord;
out vec4 FragColor;

uniform sampler2D sceneTexture;
uniform sampler2D identityTexture;
uniform vec2 cellSize;
uniform vec2 resolution;
uniform bool monochrome;
uniform bool perObject;
uniform int globalPattern;
uniform float time;
uniform vec3 monoHue;

// seven 5-bit rows per glyph, bit 4 is the leftmost column
const int glyphs[{{.TableLen}}] = int[](
{{.Tables}}
);

float rand(float v) {
    return fract(sin(v * {{.HashScale}}) * {{.HashGain}});
}

int tableFor(int pattern) {
    if (pattern == MATRIX_CYCLE || pattern == MATRIX_RAIN) {
        return DIGITAL;
    }
    if (pattern < 0 || pattern >= NUM_TABLES) {
        return 0;
    }
    return pattern;
}

float glyphBit(int pattern, int level, int x, int y) {
    level = clamp(level, 0, LEVELS - 1);
    x = clamp(x, 0, GLYPH_W - 1);
    y = clamp(y, 0, GLYPH_H - 1);
    int row = glyphs[(tableFor(pattern) * LEVELS + level) * GLYPH_H + y];
    return float((row >> (GLYPH_W - 1 - x)) & 1);
}

int animatedDigit(float h) {
    return min(1 + int(floor(h * float(LEVELS - 1))), LEVELS - 1);
}

int cycleGlyph(int col, int row, int level) {
    if (level <= 0) {
        return 0;
    }
    float seed = rand(float(col));
    float tick = floor(time * {{.CycleRate}} + float(row) * {{.CycleRowSkew}} + seed * {{.CycleSeedSpan}});
    return animatedDigit(rand(tick + seed * {{.CycleSeedMixer}}));
}

float rainCoverage(int col, int row, ivec2 g) {
    float c = float(col);
    float fallSpeed = mix({{.RainMinSpeed}}, {{.RainMaxSpeed}}, rand(c));
    float trailLength = floor(mix({{.RainMinLength}}, {{.RainMaxLength}}, rand(c + {{.RainLengthSalt}})));
    float period = trailLength + {{.RainMargin}};
    float head = mod(time * fallSpeed + rand(c + {{.RainOffsetSalt}}) * period, period);
    float d = head - float(row);
    if (d < 0.0 || d >= trailLength) {
        return 0.0;
    }
    float f = 1.0 - d / trailLength;
    float h = rand(c * {{.RainColScale}} + float(row) * {{.RainRowScale}} + floor(time * {{.RainDigitRate}}));
    return glyphBit(DIGITAL, animatedDigit(h), g.x, g.y) * f * f;
}

ivec2 glyphCoord(vec2 frag) {
    vec2 f;
    if (cellSize.x >= {{.LegibleCellWidth}}) {
        vec2 cell = floor(frag / cellSize);
        f = (frag - cell * cellSize) / cellSize * vec2(GLYPH_W, GLYPH_H);
    } else {
        float t = clamp(cellSize.x / {{.LegibleCellWidth}}, 0.0, 1.0);
        vec2 ref = mix({{.MinReadableCell}}, {{.ClassicCell}}, t);
        f = mod(frag, ref) / ref * vec2(GLYPH_W, GLYPH_H);
    }
    return clamp(ivec2(floor(f)), ivec2(0), ivec2(GLYPH_W - 1, GLYPH_H - 1));
}

void main() {
    // image coordinates, origin at the top-left like the CPU path
    vec2 frag = vec2(gl_FragCoord.x, resolution.y - gl_FragCoord.y);

    vec2 cell = floor(frag / cellSize);
    vec2 uv = (cell + 0.5) * cellSize / resolution;
    vec2 q = cellSize * 0.25 / resolution;

    vec3 avg = (texture(sceneTexture, uv).rgb
        + texture(sceneTexture, uv + q).rgb
        + texture(sceneTexture, uv - q).rgb
        + texture(sceneTexture, uv + vec2(q.x, -q.y)).rgb
        + texture(sceneTexture, uv + vec2(-q.x, q.y)).rgb) / 5.0;

    float lum = dot(avg, vec3({{.LumaR}}, {{.LumaG}}, {{.LumaB}}));
    float lifted = lum > 0.0 ? pow(clamp(lum, 0.0, 1.0), {{.LiftGamma}}) : 0.0;
    int level = clamp(int(floor(lifted * float(LEVELS))), 0, LEVELS - 1);

    int pattern = clamp(globalPattern, 0, int(PATTERN_DIVISOR) - 1);
    if (perObject) {
        float v = texture(identityTexture, uv).r;
        pattern = clamp(int(floor(v * PATTERN_DIVISOR + 0.5)), 0, int(PATTERN_DIVISOR) - 1);
    }

    ivec2 g = glyphCoord(frag);
    int col = int(cell.x);
    int row = int(cell.y);

    float cov;
    if (pattern == MATRIX_CYCLE) {
        cov = glyphBit(DIGITAL, cycleGlyph(col, row, level), g.x, g.y);
    } else if (pattern == MATRIX_RAIN) {
        cov = rainCoverage(col, row, g);
    } else {
        cov = glyphBit(pattern, level, g.x, g.y);
    }

    vec3 fg;
    vec3 bg;
    if (monochrome) {
        fg = monoHue * lifted;
        bg = monoHue * lifted * {{.MonoBackground}};
    } else {
        fg = min(avg * {{.ColorBoost}}, vec3(1.0));
        bg = avg * {{.ColorBackground}};
    }

    FragColor = vec4(mix(bg, fg * cov, cov), 1.0);
}
`
