// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shaders holds the GLSL sources for the vpbr pipelines and
// the go:generate rules that compile them to SPIR-V with
// glslangValidator. The compiled .spv files are loaded at runtime
// from the directory given to [vpbr.PBR.Config].
package shaders

//go:generate glslangValidator -V standard.vert -o standard.vert.spv
//go:generate glslangValidator -V standard.frag -o standard.frag.spv
//go:generate glslangValidator -V fallback.vert -o fallback.vert.spv
//go:generate glslangValidator -V fallback.frag -o fallback.frag.spv
