package patch

import "path/filepath"

// MetalGuard is the macro USD defines when Metal support is enabled.
const MetalGuard = "PXR_METAL_SUPPORT_ENABLED"

const (
	helperComment  = "// Helper functions to aid building both MaterialX 1.38.X and 1.39.X\n"
	metalSeparator = "// ----------------------------------------------------------------------------\n"
	ifMetal        = "#ifdef " + MetalGuard + "\n"
	endifMetal     = "#endif // " + MetalGuard + "\n"
)

// MetalRules keeps hdSt from building the MaterialX Metal Shading Language
// generator on platforms without Metal. USD 25.11 compiles the MSL code
// without checking PXR_ENABLE_METAL_SUPPORT; the rules guard it with the
// existing MetalGuard macro and drop the MaterialXGenMsl link.
func MetalRules(srcDir string) []Rule {
	hdst := filepath.Join(srcDir, "pxr", "imaging", "hdSt")
	return []Rule{
		{
			File: filepath.Join(hdst, "CMakeLists.txt"),
			Replacements: []Replacement{
				{Old: "        MaterialXGenMsl\n", New: ""},
			},
		},
		{
			File: filepath.Join(hdst, "materialXShaderGen.h"),
			Replacements: []Replacement{
				{
					Old: "#include <MaterialXGenMsl/MslShaderGenerator.h>\n",
					New: ifMetal + "#include <MaterialXGenMsl/MslShaderGenerator.h>\n#endif\n",
				},
				{
					Old: "/// \\class HdStMaterialXShaderGenMsl\n",
					New: ifMetal + "/// \\class HdStMaterialXShaderGenMsl\n",
				},
				{
					Old: helperComment,
					New: endifMetal + "\n" + helperComment,
				},
			},
		},
		{
			File: filepath.Join(hdst, "materialXShaderGen.cpp"),
			Replacements: []Replacement{
				{
					Old: mslIncludes,
					New: ifMetal + mslIncludes + "#endif\n",
				},
				{
					Old: mslTargetOpen,
					New: ifMetal + mslTargetOpen + "#endif\n",
				},
				{
					Old: mslTargetClose,
					New: ifMetal + mslTargetClose + "#endif\n",
				},
				{
					Old: mslSection,
					New: ifMetal + mslSection,
				},
				{
					Old: "\n\n" + helperComment,
					New: "\n" + endifMetal + "\n" + helperComment,
				},
			},
		},
		{
			File: filepath.Join(hdst, "materialXFilter.cpp"),
			Replacements: []Replacement{
				{
					Old: mslFilter,
					New: ifMetal + mslFilter + "#endif\n",
				},
			},
		},
	}
}

const mslIncludes = "#include <MaterialXGenMsl/Nodes/SurfaceNodeMsl.h>\n" +
	"#include <MaterialXGenMsl/MslResourceBindingContext.h>\n" +
	"#include <MaterialXGenMsl/MslShaderGenerator.h>\n"

const mslTargetOpen = "    else if (targetShadingLanguage == mx::MslShaderGenerator::TARGET) {\n" +
	"        line += \"{\";\n" +
	"    }\n"

const mslTargetClose = "    else if (targetShadingLanguage == mx::MslShaderGenerator::TARGET) {\n" +
	"        line += \"}\";\n" +
	"    }\n"

const mslSection = metalSeparator +
	"//                          HdSt MaterialX ShaderGen Metal\n" +
	metalSeparator

const mslFilter = "    if (apiName == HgiTokens->Metal) {\n" +
	"        return HdStMaterialXShaderGenMsl::create(mxHdInfo);\n" +
	"    }\n"
