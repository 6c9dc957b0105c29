/*package xphoton generates mock X-ray observations from gas datasets.

The library prepares a dataset (derived fields, particle filters, hot-gas
cuts), samples photons from it with a source model, projects the photons onto
the sky, and post-processes the resulting event lists into spectra and
images. The spectral physics itself (plasma emission tables, foreground
absorption, instrument responses) stays behind interfaces in lib/pipeline so
external models can plug in; deterministic built-in models cover the
power-law and line parameterizations.

The packages under lib/ are the library surface; cmd/xphoton is the
command-line driver. See lib/pipeline for the stage-by-stage contracts and
the on-disk sample/event formats.*/
package xphoton
