// Package printing contains the physical page model used to lay out and
// export disciplinary request documents: paper geometry, fit-to-page
// placement of a rasterized page and export file naming.
package printing
