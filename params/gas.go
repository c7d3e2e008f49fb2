// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

// Gas and EIP-1559 constants the block builder and miner scheduler need
// (spec.md §4.F/§4.G, §9 "Base fee"). Trimmed down from the teacher's own,
// much larger params/protocol_params.go, which also carries EVM opcode gas
// costs and precompile addresses this module has no interpreter to use
// (spec.md §1 Non-goals).
const (
	TxGas uint64 = 21000 // Per-transaction minimum, the "block full" threshold of spec.md §4.F.

	GasLimitBoundDivisor uint64 = 1024  // Bounds how much the gas limit may drift from its parent per block.
	MinGasLimit          uint64 = 5000  // Minimum the gas limit may ever be.

	DefaultBaseFeeChangeDenominator = 8          // Bounds the amount the base fee can change between blocks.
	DefaultElasticityMultiplier     = 2          // Bounds the maximum gas limit an EIP-1559 block may have relative to its target.
	InitialBaseFee                  = 1000000000 // Initial base fee for EIP-1559 blocks (spec.md GLOSSARY).
)
