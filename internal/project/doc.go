// Package project decodes .csproj project descriptors into a flat view of
// target frameworks, build properties and package references.
//
// Only the SDK-style subset the dependency rules need is understood:
// PropertyGroup children, PackageReference (Include/Update plus a Version
// attribute or child element) and ProjectReference items. Each package keeps
// the line it was declared on so findings can point at it.
package project
