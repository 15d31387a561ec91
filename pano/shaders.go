package pano

// Uniform names below are the wire contract with the host side; the
// projections resolve locations by these exact strings.

// mappingGLSL is the one GLSL counterpart of package projection: rotation
// composition and direction-to-source-pixel mapping. Both fragment
// shaders splice in this same block, so the offscreen and realtime
// strategies cannot drift apart. Any change here must be mirrored in
// math.Mat3RotationYPR and projection's mappers.
const mappingGLSL = `
uniform sampler2D uTexture;
uniform int   uMode;       // 0 = ERP, 1 = fisheye
uniform vec3  uRotYPR;     // radians; yaw and pitch already negated host-side
uniform float uHFov;       // radians, ERP coverage
uniform float uVFov;
uniform float uFisheyeFov; // radians, fisheye field of view
uniform vec2  uImgSize;    // source size in pixels

// Rz(roll) * Rx(pitch) * Ry(yaw), column-major constructors.
mat3 rotationYPR(vec3 ypr) {
    float cy = cos(ypr.x), sy = sin(ypr.x);
    float cp = cos(ypr.y), sp = sin(ypr.y);
    float cr = cos(ypr.z), sr = sin(ypr.z);
    mat3 ry = mat3(cy, 0.0, -sy,   0.0, 1.0, 0.0,   sy, 0.0, cy);
    mat3 rx = mat3(1.0, 0.0, 0.0,  0.0, cp, sp,     0.0, -sp, cp);
    mat3 rz = mat3(cr, sr, 0.0,    -sr, cr, 0.0,    0.0, 0.0, 1.0);
    return rz * rx * ry;
}

// samplePanorama maps a world direction through the inverse rotation and
// the configured source convention. Outside coverage it returns
// transparent black.
vec4 samplePanorama(vec3 worldDir) {
    vec3 d = normalize(transpose(rotationYPR(uRotYPR)) * worldDir);

    // 1e-6 slack: a direction on the exact coverage edge can quantize a
    // few ulps past it. Mirrored by the CPU mappers.
    if (uMode == 1) {
        if (d.z <= 0.0) return vec4(0.0);
        float theta = acos(clamp(d.z, -1.0, 1.0));
        if (theta > uFisheyeFov * 0.5 + 1e-6) return vec4(0.0);
        theta = min(theta, uFisheyeFov * 0.5);
        float focal = min(uImgSize.x, uImgSize.y) * 0.5 / (uFisheyeFov * 0.5);
        float r = focal * theta;
        float a = atan(d.x, -d.y);
        vec2 px = uImgSize * 0.5 + r * vec2(sin(a), cos(a));
        if (px.x < 0.0 || px.x >= uImgSize.x || px.y < 0.0 || px.y >= uImgSize.y) {
            return vec4(0.0);
        }
        return texture(uTexture, px / uImgSize);
    }

    float lon = atan(d.x, d.z);
    float lat = asin(clamp(d.y, -1.0, 1.0));
    if (abs(lon) > uHFov * 0.5 + 1e-6 || abs(lat) > uVFov * 0.5 + 1e-6) return vec4(0.0);
    lon = clamp(lon, -uHFov * 0.5, uHFov * 0.5);
    lat = clamp(lat, -uVFov * 0.5, uVFov * 0.5);
    vec2 px = vec2((lon / uHFov + 0.5) * (uImgSize.x - 1.0),
                   (0.5 - lat / uVFov) * (uImgSize.y - 1.0));
    if (px.x < 0.0 || px.x >= uImgSize.x || px.y < 0.0 || px.y >= uImgSize.y) {
        return vec4(0.0);
    }
    return texture(uTexture, (px + 0.5) / uImgSize);
}
`

// directionGLSL converts the equirectangular UV of the corrected sphere
// into a world direction. Shared by the correction pass (over its
// fullscreen quad) and the realtime mesh shader (over sphere/plane UVs).
const directionGLSL = `
vec3 directionFromUV(vec2 uv) {
    float lon = (uv.x - 0.5) * 6.28318530717958647692;
    float lat = (0.5 - uv.y) * 3.14159265358979323846;
    float cosLat = cos(lat);
    return vec3(cosLat * sin(lon), sin(lat), cosLat * cos(lon));
}
`

// correctionVertSrc draws the pass's fullscreen quad; positions are
// already in clip space.
const correctionVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 2) in vec2 inUV;

out vec2 fragUV;

void main() {
    gl_Position = vec4(inPosition.xy, 0.0, 1.0);
    fragUV      = inUV;
}
` + "\x00"

// correctionFragSrc runs the full mapping once per output pixel of the
// offscreen target.
const correctionFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;
` + mappingGLSL + directionGLSL + `
void main() {
    outColor = samplePanorama(directionFromUV(fragUV));
}
` + "\x00"

// meshVertSrc is the sphere/plane vertex shader shared by both
// strategies: MVP transform plus UV pass-through.
const meshVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 2) in vec2 inUV;

uniform mat4 uMVP;

out vec2 fragUV;

void main() {
    gl_Position = uMVP * vec4(inPosition, 1.0);
    fragUV      = inUV;
}
` + "\x00"

// correctedFragSrc samples the already-corrected render target (FBO
// strategy): a plain texture lookup.
const correctedFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D uTexture;

void main() {
    outColor = texture(uTexture, fragUV);
}
` + "\x00"

// realtimeFragSrc performs the correction per fragment at draw time,
// sampling the original source directly.
const realtimeFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;
` + mappingGLSL + directionGLSL + `
void main() {
    outColor = samplePanorama(directionFromUV(fragUV));
}
` + "\x00"
